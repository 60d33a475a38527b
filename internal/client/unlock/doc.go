// Package unlock drives the unlock flow of an authenticated session.
//
// A Controller turns the user's login password into the pair of session keys
// held by a keystore.Store. On the first unlock it generates a master key,
// wraps it under the password-derived personal key and persists only the
// wrapped form. Every later unlock unwraps the stored blob. A wrong password
// never changes stored state or the keystore.
package unlock
