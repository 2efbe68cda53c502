package main

// client is a registered OAuth client, the demo-server stand-in for
// whatever client registry a real host keeps (userclouds-authzsdk keeps
// its equivalent objects behind authz.Client; this server has none of
// that, so it keeps a fixed in-memory table instead).
type client struct {
	ID           string
	Secret       string
	Confidential bool
}

// user is a resource-owner account for the password grant demo path.
type user struct {
	Username string
	Password string
	Subject  string
	Email    string
}

type registry struct {
	clients map[string]client
	users   map[string]user
}

func newDemoRegistry() *registry {
	return &registry{
		clients: map[string]client{
			"demo-confidential": {ID: "demo-confidential", Secret: "demo-secret", Confidential: true},
			"demo-public":       {ID: "demo-public", Confidential: false},
		},
		users: map[string]user{
			"alice": {Username: "alice", Password: "hunter2", Subject: "user-alice", Email: "alice@example.com"},
		},
	}
}

func (r *registry) client(id string) (client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

func (r *registry) authenticateUser(username, password string) (user, bool) {
	u, ok := r.users[username]
	if !ok || u.Password != password {
		return user{}, false
	}
	return u, true
}
