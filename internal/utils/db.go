package utils

import (
	"strconv"
	"strings"
	"time"
)

// GenerateConnectionString собирает DSN для pgxpool.
// poolSize > 0 добавляет pool_max_conns.
func GenerateConnectionString(
	host, user, password, dbName, sslMode string,
	port, poolSize int,
	timeout time.Duration,
) (string, error) {
	switch {
	case host == "":
		return "", ErrStorageEmptyHostName
	case port <= 0 || port > 65535:
		return "", ErrStorageInvalidPortNumber
	case user == "":
		return "", ErrStorageEmptyUsername
	case password == "":
		return "", ErrStorageEmptyPassword
	case dbName == "":
		return "", ErrStorageInvalidDatabaseName
	case timeout < 0:
		return "", ErrStorageInvalidTimeout
	case poolSize < 0:
		return "", ErrStorageInvalidPoolSize
	}

	switch sslMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return "", ErrStorageInvalidSslMode
	}

	var conStr strings.Builder
	conStr.WriteString("host=")
	conStr.WriteString(host)
	conStr.WriteString(" port=")
	conStr.WriteString(strconv.Itoa(port))
	conStr.WriteString(" user=")
	conStr.WriteString(user)
	conStr.WriteString(" password=")
	conStr.WriteString(password)
	conStr.WriteString(" dbname=")
	conStr.WriteString(dbName)
	conStr.WriteString(" sslmode=")
	conStr.WriteString(sslMode)

	if timeout > 0 {
		conStr.WriteString(" connect_timeout=")
		conStr.WriteString(strconv.Itoa(int(timeout.Seconds())))
	}
	if poolSize > 0 {
		conStr.WriteString(" pool_max_conns=")
		conStr.WriteString(strconv.Itoa(poolSize))
	}

	return conStr.String(), nil
}
