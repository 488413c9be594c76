package common

// Cookie names carrying the access and refresh credentials.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// UserIDParam is the handshake query parameter identifying the connecting user.
const UserIDParam = "userId"

// TokenParam optionally carries the access credential in the handshake.
const TokenParam = "token"
