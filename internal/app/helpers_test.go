package app

import (
	"github.com/nhle/order-dashboard/internal/model"
	"github.com/nhle/order-dashboard/internal/ui/command"
	"github.com/nhle/order-dashboard/internal/ui/setup"
)

func commandMsg(name string, args ...string) command.CommandMsg {
	return command.CommandMsg{Name: name, Args: args}
}

func setupDone(cfg *model.AppConfig) setup.DoneMsg {
	return setup.DoneMsg{Config: cfg}
}
