// Package controller implements the node server's controller node.
//
// The Controller handles every event the Polyglot host sends: the initial
// configuration, configuration changes, the short and long poll timers,
// queries, commands, stop and delete. It owns the ISY connection
// parameters and is the only place they change.
//
//	ctrl := controller.New(controller.Options{
//	    Host:      iface,
//	    Cycler:    collector,
//	    Heartbeat: heartbeat.New(iface, "controller"),
//	    Logger:    logger,
//	    Node:      controller.NodeConfig{Address: "controller", Name: "ISY Inventory", NodeDefID: "controller"},
//	})
//	iface.Start(ctx, ctrl)
//
// Scheduler replaces the host's poll timers when the host does not send them.
package controller
