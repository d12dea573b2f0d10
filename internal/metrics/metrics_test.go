package metrics

import "testing"

func TestClassifyStatus(t *testing.T) {
	tests := map[int]string{
		0:   "network_error",
		200: "2xx",
		204: "2xx",
		302: "3xx",
		400: "4xx",
		429: "4xx",
		503: "5xx",
		700: "700",
	}
	for code, want := range tests {
		if got := classifyStatus(code); got != want {
			t.Errorf("classifyStatus(%d) = %s, want %s", code, got, want)
		}
	}
}
