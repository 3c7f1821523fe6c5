package karel

// Direction codes. LEFT computes the cyclic successor in this numbering.
const (
	DirNorth = 0
	DirEast  = 1
	DirSouth = 2
	DirWest  = 3
)

// CitySize is the fixed width and height of the grid.
const CitySize = 20

// WallValue is the 4-bit sentinel that marks a square as an immutable
// wall. Flag counts occupy 0..8; 9..14 are reserved and never appear.
const WallValue = 0x0f

// Karel is the robot's pose: current position, home position and facing
// direction.
type Karel struct {
	X, Y  int
	HomeX int
	HomeY int
	Dir   int
}

// City is the 20x20 grid, packed two 4-bit squares per byte, row-major,
// low nibble holding the even-x square.
type City struct {
	squares [CitySize * CitySize / 2]byte
}

func cityIndex(x, y int) (byteIdx int, lowNibble bool) {
	idx := x + y*CitySize
	return idx / 2, idx%2 == 0
}

// GetSquare returns the packed value (0..8 flag count, or 0xf for a wall)
// at (x, y). Callers must bounds-check; this layer does not.
func (c *City) GetSquare(x, y int) byte {
	idx, low := cityIndex(x, y)
	b := c.squares[idx]
	if low {
		return b & 0x0f
	}
	return (b >> 4) & 0x0f
}

// SetSquare stores the low nibble of v at (x, y). Callers must not use
// this to write WallValue onto an existing wall or vice versa; the
// interpreter enforces that at the instruction level.
func (c *City) SetSquare(x, y int, v byte) {
	idx, low := cityIndex(x, y)
	if low {
		c.squares[idx] = (c.squares[idx] & 0xf0) | (v & 0x0f)
	} else {
		c.squares[idx] = (c.squares[idx] & 0x0f) | ((v & 0x0f) << 4)
	}
}

// InBounds reports whether (x, y) lies within the city.
func InBounds(x, y int) bool {
	return x >= 0 && x < CitySize && y >= 0 && y < CitySize
}

// GetStep returns the coordinate one square ahead of k in its facing
// direction, or ok=false if that would leave the grid. Wall-ness is
// decided by the caller.
func (k *Karel) GetStep() (x, y int, ok bool) {
	x, y = k.X, k.Y
	switch k.Dir {
	case DirNorth:
		y++
	case DirEast:
		x++
	case DirSouth:
		y--
	case DirWest:
		x--
	}
	if !InBounds(x, y) {
		return 0, 0, false
	}
	return x, y, true
}

// TurnLeft advances the facing direction to its cyclic successor.
func (k *Karel) TurnLeft() {
	k.Dir = (k.Dir + 1) % 4
}

// AtHome reports whether k's current position matches its home position.
func (k *Karel) AtHome() bool {
	return k.X == k.HomeX && k.Y == k.HomeY
}

// externalCityBytes is the wire size of the load_world/read_world city
// array: one byte per square, row-major, 0..8 flag count or 255 = wall.
const externalCityBytes = CitySize * CitySize

// externalWallByte is the external (host-facing) wall sentinel. Internally
// walls are stored as the 4-bit value WallValue.
const externalWallByte = 255

// LoadCityBytes decodes a host-supplied 400-byte row-major city array
// into c. Returns an error if data is the wrong length or contains a
// byte outside {0..8, 255}.
func (c *City) LoadCityBytes(data []byte) error {
	if len(data) != externalCityBytes {
		return ErrInvalidWorldSize
	}

	var decoded City
	for y := 0; y < CitySize; y++ {
		for x := 0; x < CitySize; x++ {
			v := data[x+y*CitySize]
			switch {
			case v == externalWallByte:
				decoded.SetSquare(x, y, WallValue)
			case v <= 8:
				decoded.SetSquare(x, y, v)
			default:
				return ErrInvalidWorldValue
			}
		}
	}

	*c = decoded
	return nil
}

// StoreCityBytes encodes c into a host-facing 400-byte row-major array.
// data must be exactly externalCityBytes long.
func (c *City) StoreCityBytes(data []byte) error {
	if len(data) != externalCityBytes {
		return ErrInvalidWorldSize
	}

	for y := 0; y < CitySize; y++ {
		for x := 0; x < CitySize; x++ {
			v := c.GetSquare(x, y)
			if v == WallValue {
				data[x+y*CitySize] = externalWallByte
			} else {
				data[x+y*CitySize] = v
			}
		}
	}
	return nil
}

// LoadKarelTuple decodes the host-supplied [x, y, dir, home_x, home_y]
// array.
func (k *Karel) LoadKarelTuple(tuple [5]uint32) error {
	x, y, dir, hx, hy := int(tuple[0]), int(tuple[1]), int(tuple[2]), int(tuple[3]), int(tuple[4])
	if !InBounds(x, y) || !InBounds(hx, hy) || dir < 0 || dir > 3 {
		return ErrInvalidWorldValue
	}

	k.X, k.Y, k.Dir, k.HomeX, k.HomeY = x, y, dir, hx, hy
	return nil
}

// StoreKarelTuple encodes k as a [x, y, dir, home_x, home_y] array.
func (k *Karel) StoreKarelTuple() [5]uint32 {
	return [5]uint32{uint32(k.X), uint32(k.Y), uint32(k.Dir), uint32(k.HomeX), uint32(k.HomeY)}
}
