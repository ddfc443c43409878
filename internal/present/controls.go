package present

import (
	"zonecaster/internal/config"
	"zonecaster/internal/player"
	"zonecaster/internal/world"
)

// Action is a viewer input independent of the toolkit that produced it.
type Action int

const (
	MoveForward Action = iota
	MoveBackward
	StrafeLeft
	StrafeRight
	TurnLeft
	TurnRight
	ToggleStats
	Screenshot
	Quit
	actionCount
)

// Input reports which actions are held this tick.
type Input interface {
	Pressed(a Action) bool
}

// Commands are the edge-triggered actions of one tick.
type Commands struct {
	ToggleStats bool
	Screenshot  bool
	Quit        bool
}

// Controller applies input to the player once per update tick.
type Controller struct {
	Player *player.Player
	Level  *world.Level

	moveStep    float64
	turnImpulse float64
	prev        [actionCount]bool
}

// NewController derives per-tick movement from the camera config and tick rate.
func NewController(cfg *config.Config, p *player.Player, level *world.Level, tps int) *Controller {
	if tps <= 0 {
		tps = 60
	}
	return &Controller{
		Player:   p,
		Level:    level,
		moveStep: cfg.GetMoveSpeed() / float64(tps),
		// the turn spring spreads each impulse over several ticks
		turnImpulse: cfg.GetTurnSpeed() / float64(tps) / 4,
	}
}

// justPressed returns true if the action was not held last tick but is held now.
func (c *Controller) justPressed(in Input, a Action) bool {
	pressed := in.Pressed(a)
	just := pressed && !c.prev[a]
	c.prev[a] = pressed
	return just
}

// Step handles movement and camera controls, advances the player and returns
// the one-shot commands triggered this tick.
func (c *Controller) Step(in Input) Commands {
	var forward, strafe float64
	if in.Pressed(MoveForward) {
		forward += c.moveStep
	}
	if in.Pressed(MoveBackward) {
		forward -= c.moveStep
	}
	if in.Pressed(StrafeLeft) {
		strafe -= c.moveStep
	}
	if in.Pressed(StrafeRight) {
		strafe += c.moveStep
	}
	if forward != 0 || strafe != 0 {
		c.Player.Move(c.Level, forward, strafe)
	}

	if in.Pressed(TurnLeft) {
		c.Player.Turn(-c.turnImpulse)
	}
	if in.Pressed(TurnRight) {
		c.Player.Turn(c.turnImpulse)
	}
	c.Player.Update(c.Level)

	return Commands{
		ToggleStats: c.justPressed(in, ToggleStats),
		Screenshot:  c.justPressed(in, Screenshot),
		Quit:        c.justPressed(in, Quit),
	}
}
