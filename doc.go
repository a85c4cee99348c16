// Package sessions provides cookie-based session primitives (signed token
// issuance, double-submit anti-forgery pairing, lifecycle orchestration) plus
// HTTP helpers for mounting a JSON session surface on any go-router backend.
//
// Credential pairs:
//   - Every authenticated session is represented by two cookies issued
//     together: a signed session token the browser cannot script against, and
//     a readable anti-forgery token the client must echo back in a request
//     header. The authorization gate rejects requests where the pair does not
//     match, without revealing which half failed.
//
// Lifecycle:
//   - SessionManager orchestrates signup, login, password change, and
//     password reset against an AccountStore. The bundled AccountProvider
//     persists accounts via Bun with bcrypt password hashing and login
//     attempt throttling, but any AccountStore implementation works.
//
// Continuation hooks:
//   - HookRunner executes registered hooks after lifecycle responses have
//     been written. Hooks run detached on their own goroutines (errors are
//     logged, panics contained) so notification or audit work never delays
//     or fails a session operation.
package sessions
