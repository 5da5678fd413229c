// Package cookie builds and reads the cookies blazeweb sets, HMAC-signing
// their values when a secret is configured.
//
//	m := cookie.New(cookie.WithSecret(secret), cookie.WithSecure(true))
//	c, err := m.Make("__sid", token, 30*24*time.Hour)
//	resp.Header().Add("Set-Cookie", c.String())
//
//	token, err := m.Read(r, "__sid") // ErrBadSig when tampered with
//
// Cookies are returned as values instead of written to a ResponseWriter so
// they can be attached to a response that has not been sent yet.
package cookie
