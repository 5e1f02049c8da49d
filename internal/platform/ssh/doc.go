// Package ssh drives the CLI of a network switch over SSH.
//
// A Client holds the connection settings. Open dials the switch, starts an
// interactive shell on a pseudo terminal, enters privileged mode when the
// device asks for it and returns a Session. Session.Run writes one command
// and reads until the next CLI prompt, turning "%"-prefixed device messages
// into a *CommandError.
//
// Sessions are not safe for concurrent use. Callers serialize access to the
// switch and close the session when their transaction is done.
package ssh
