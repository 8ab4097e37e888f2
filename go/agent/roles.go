/*
   Copyright 2023 GitHub Inc.
         See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package agent

// Role and health bits for the shared per-server status word (spec §9:
// "a single word updated with release semantics and read with acquire").
// go/topology publishes the role bits on each tick; outside the tick,
// Demote clears MASTER directly.
const (
	BitMaster uint64 = 1 << iota
	BitSlave
	BitSlaveOfExtMaster
	BitRelayMaster
	BitAuthError
	BitDiskSpaceExhausted
	BitMaintenance
	BitRunning
)

// ClearStatusBit unsets one bit of the status word, preserving the rest,
// under the same release-publish path SetStatusBits uses.
func (a *ServerAgent) ClearStatusBit(bit uint64) {
	a.setStatusBits(a.StatusBits() &^ bit)
}

// SetStatusBit sets one bit of the status word, preserving the rest.
func (a *ServerAgent) SetStatusBit(bit uint64) {
	a.setStatusBits(a.StatusBits() | bit)
}

// HasStatusBit reports whether bit is currently set.
func (a *ServerAgent) HasStatusBit(bit uint64) bool {
	return a.StatusBits()&bit != 0
}

// DiffStatusBits returns the bits that flipped (set or cleared) between
// the previous publish and the current one, so a caller can log only on
// an actual role transition rather than on every tick.
func (a *ServerAgent) DiffStatusBits() uint64 {
	return a.StatusBits() ^ a.PrevStatusBits()
}

