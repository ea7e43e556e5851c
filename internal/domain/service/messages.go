package service

import (
	"fmt"
	"strings"

	"github.com/jonny/instance-bot/internal/domain/model"
)

const (
	startingMessage       = "⏳ Server start in progress… you can join in a few minutes!"
	alreadyStoppedMessage = "🛑 Server is already stopped."
	stopInProgressMessage = "⏳ Server stop is already in progress."
	stoppingMessage       = "🛑 Stopping server…"

	unassignedAddress = "unassigned"
)

func alreadyRunningMessage(instance model.Instance) string {
	lines := []string{"✅ Server is already running!"}
	if instance.HasAddress() {
		lines = append(lines, fmt.Sprintf("🌐 Public IP: %s", instance.PublicAddress))
	}
	return strings.Join(lines, "\n")
}

func statusMessage(instance model.Instance) string {
	address := instance.PublicAddress
	if address == "" {
		address = unassignedAddress
	}
	return fmt.Sprintf("📡 Instance state: %s\n🌐 Public IP: %s", instance.DisplayState(), address)
}
