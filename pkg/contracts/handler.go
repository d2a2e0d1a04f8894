package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts a resource's routes. Every HTTP surface of the admin API
// implements it.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
