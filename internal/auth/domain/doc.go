// Package domain defines the authentication and authorization model: users,
// principals, sessions, refresh tokens, API keys, the capability vocabulary
// and the access decision engine every resource handler consults.
package domain
