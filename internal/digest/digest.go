// Package digest produces the per-tick world fingerprint used to compare
// runs. Two simulations that disagree anywhere diverge in their digest
// chains at the first differing tick.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"lukechampine.com/blake3"

	"starfall/server/internal/sim"
	"starfall/server/internal/world"
)

// Size is the digest length in bytes.
const Size = 32

// Digest is a BLAKE3 hash over the canonical snapshot encoding.
type Digest [Size]byte

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Chain carries the running hash chain. Each link hashes the previous link
// together with the current snapshot, so matching heads imply matching
// histories.
type Chain struct {
	prev Digest
}

// NewChain starts a chain at the zero digest.
func NewChain() *Chain {
	return &Chain{}
}

// Head reports the latest link.
func (c *Chain) Head() Digest {
	return c.prev
}

// Append hashes the snapshot into the chain and returns the new link.
func (c *Chain) Append(snapshot sim.Snapshot) Digest {
	link := Sum(c.prev, snapshot)
	c.prev = link
	return link
}

// Sum computes one chain link. The encoding is canonical: planets and fleets
// are visited in sorted key order, floats are written as IEEE 754 bits,
// strings are length prefixed. Interpolated fields (fleet position and
// progress) are derived from the hashed ones and stay out of the encoding.
func Sum(prev Digest, snapshot sim.Snapshot) Digest {
	h := blake3.New(Size, nil)
	h.Write(prev[:])

	writeUint64(h, snapshot.Tick)
	writeFloat(h, snapshot.Time)
	writeFloat(h, snapshot.Remaining)

	planets := append([]world.PlanetView(nil), snapshot.Planets...)
	sort.Slice(planets, func(i, j int) bool { return planets[i].ID < planets[j].ID })
	for _, p := range planets {
		writeString(h, p.ID)
		writeFloat(h, p.X)
		writeFloat(h, p.Y)
		writeFloat(h, p.Size)
		writeFloat(h, p.Troops)
		writeUint64(h, uint64(p.Owner))
	}

	fleets := append([]world.FleetView(nil), snapshot.Fleets...)
	sort.Slice(fleets, func(i, j int) bool { return fleets[i].ID < fleets[j].ID })
	for _, f := range fleets {
		writeUint64(h, f.ID)
		writeUint64(h, uint64(f.Owner))
		writeString(h, f.From)
		writeString(h, f.To)
		writeFloat(h, f.Amount)
		writeFloat(h, f.DepartedAt)
		writeFloat(h, f.Duration)
	}

	if snapshot.Outcome != nil {
		writeUint64(h, uint64(snapshot.Outcome.Winner))
		writeString(h, string(snapshot.Outcome.Kind))
		writeFloat(h, snapshot.Outcome.Time)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func writeUint64(h *blake3.Hasher, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

func writeFloat(h *blake3.Hasher, v float64) {
	writeUint64(h, math.Float64bits(v))
}

func writeString(h *blake3.Hasher, s string) {
	writeUint64(h, uint64(len(s)))
	h.Write([]byte(s))
}
