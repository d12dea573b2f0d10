package ozon

import (
	"net/http"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
)

// AuthEngine выставляет заголовки авторизации запроса
type AuthEngine interface {
	GetApiKey() string
	SetApiKey(request *http.Request)
}

// ProfileAuth авторизация Seller API по паре Client-Id / Api-Key профиля
type ProfileAuth struct {
	clientID string
	apiKey   string
}

func NewProfileAuth(profile models.SellerProfile) *ProfileAuth {
	return &ProfileAuth{clientID: profile.ClientID, apiKey: profile.Token}
}

func (a *ProfileAuth) GetApiKey() string {
	return a.apiKey
}

func (a *ProfileAuth) SetApiKey(request *http.Request) {
	request.Header.Set("Client-Id", a.clientID)
	request.Header.Set("Api-Key", a.apiKey)
}
