// Package router exposes a consistent hashing ring over a line-oriented TCP
// protocol. Clients ask which node owns a key and manage ring membership;
// the server only talks about the backing nodes, never to them.
package router
