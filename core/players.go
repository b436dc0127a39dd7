package core

// PlayerSlots counts connected players against a fixed maximum and keeps the
// latest input for each player index.
type PlayerSlots struct {
	max    uint8
	count  uint8
	inputs []Input
}

// NewPlayerSlots returns slots for up to max players.
func NewPlayerSlots(max uint8) PlayerSlots {
	return PlayerSlots{
		max:    max,
		inputs: make([]Input, max),
	}
}

// Max returns the maximum number of players.
func (p *PlayerSlots) Max() uint8 { return p.max }

// Count returns the number of connected players.
func (p *PlayerSlots) Count() uint8 { return p.count }

// Connect takes a slot. The player index is not checked against max. It
// returns false without changing anything once every slot is in use.
func (p *PlayerSlots) Connect(player uint8) bool {
	if p.count >= p.max {
		return false
	}
	p.count++
	return true
}

// Disconnect frees a slot and clears the player's input. The count
// saturates at zero.
func (p *PlayerSlots) Disconnect(player uint8) {
	if p.count == 0 {
		return
	}
	p.count--
	if player < p.max {
		p.inputs[player] = InputNone
	}
}

// SetInput stores input for player. Out-of-range players are ignored.
func (p *PlayerSlots) SetInput(player uint8, input Input) {
	if player < p.max {
		p.inputs[player] = input
	}
}

// Input returns the stored input for player.
func (p *PlayerSlots) Input(player uint8) Input {
	if player >= p.max {
		return InputNone
	}
	return p.inputs[player]
}

// Reset disconnects everyone.
func (p *PlayerSlots) Reset() {
	clear(p.inputs)
	p.count = 0
}
