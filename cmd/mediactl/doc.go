// Command mediactl is the operator CLI for transomd. It talks to the daemon
// over its HTTP API (there is no local socket or direct store access — every
// subcommand is a thin client request) and renders job/batch status and
// configuration as tables and status lines.
package main
