// Package script runs Lua scripts against a pubsub registry.
//
// Scripts see a global table named pubsub:
//
//	local h = pubsub.subscribe("nav.click", function(what, n)
//	  print("clicked", what, n)
//	end)
//	pubsub.publish("nav.*", "menu", 3)
//	pubsub.unsubscribe(h)
//
// subscribe returns a handle table with id, channel and callback fields.
// unsubscribe accepts either a handle table or a channel and the function
// that was subscribed. Both raise an error containing "invalid argument" for
// any other argument shape.
//
// publish never raises. A non-string channel matches nothing. It returns true,
// or false and a message when one or more callbacks failed.
//
// The same Lua function always maps to the same registry callback, so
// unsubscribing a function removes every registration of it on that channel.
//
// gopher-lua states are not goroutine-safe. Lua callbacks run on whichever
// goroutine publishes, so a registry shared with a script must only be
// published to from the goroutine running the script.
package script
