//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package handle implements the opaque 32-bit resource handles returned by
// the arbiter to its callers. A handle packs a resource-type tag, a
// resource id, and a monotonic request tag into a single integer so
// callers have no ability to forge or compare across unrelated resources.
package handle

// Type identifies the kind of resource a handle refers to.
type Type uint8

const (
	Frontend Type = iota
	Lnb
	Cas
	CiCam
	Demux
	Descrambler
)

func (t Type) String() string {
	switch t {
	case Frontend:
		return "frontend"
	case Lnb:
		return "lnb"
	case Cas:
		return "cas"
	case CiCam:
		return "cicam"
	case Demux:
		return "demux"
	case Descrambler:
		return "descrambler"
	default:
		return "unknown"
	}
}

// Invalid is the well-known sentinel returned on failure paths. The
// all-ones pattern can never be produced by Encode, since the type field
// of a real handle is always one of the small Type constants above.
const Invalid Handle = 0xFFFFFFFF

// Handle is the opaque value exposed to callers. Layout (MSB to LSB):
//
//	bits 31..24  resource-type tag
//	bits 23..16  resource id within type
//	bits 15..0   monotonic request counter (wraps, not part of identity)
type Handle uint32

// Encode packs a type, resource id and request tag into a Handle. The
// counter exists only to let callers tell repeated grants of the same
// resource apart; it is not consulted by Decode's callers for equality.
func Encode(t Type, resourceID uint8, tag uint16) Handle {
	return Handle(uint32(t)<<24 | uint32(resourceID)<<16 | uint32(tag))
}

// Decode splits a Handle back into its type and resource id. The request
// tag is intentionally not returned: nothing in this package's contract
// needs it once the handle has been validated.
func Decode(h Handle) (t Type, resourceID uint8) {
	t = Type(h >> 24 & 0xFF)
	resourceID = uint8(h >> 16 & 0xFF)
	return t, resourceID
}

// Validate checks that h was minted for the expected type and is not the
// Invalid sentinel. It does not check that the resource id still exists;
// that is the caller's job (registries change under the caller's lock).
func Validate(h Handle, expected Type) bool {
	if h == Invalid {
		return false
	}
	t, _ := Decode(h)
	return t == expected
}

// Counter is a per-process monotonically increasing 16-bit tag generator.
// It is not safe for concurrent use by itself -- callers invoke it while
// already holding the arbiter's single global mutex (see package arbiter).
type Counter struct {
	next uint16
}

// Next returns the next tag value, wrapping silently at 2^16 as documented
// in spec.md section 4.1 -- wrap-around is acceptable because the counter
// is a disambiguator, not an identity.
func (c *Counter) Next() uint16 {
	v := c.next
	c.next++
	return v
}
