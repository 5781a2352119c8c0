package cpu

func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x0F)
	return result
}

func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0)
	return result
}

// add sets A to A + value (+ carry flag for ADC).
func (c *CPU) add(value uint8, withCarry bool) {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	sum := uint16(c.a) + uint16(value) + uint16(carry)
	half := c.a&0x0F + value&0x0F + carry
	c.a = uint8(sum)
	c.setFlags(c.a == 0, false, half > 0x0F, sum > 0xFF)
}

// subtract returns A - value (- carry flag for SBC) and sets the flags, A is untouched.
func (c *CPU) subtract(value uint8, withCarry bool) uint8 {
	var carry uint8
	if withCarry {
		carry = c.flagToBit(carryFlag)
	}
	diff := int(c.a) - int(value) - int(carry)
	half := int(c.a&0x0F) - int(value&0x0F) - int(carry)
	result := uint8(diff)
	c.setFlags(result == 0, true, half < 0, diff < 0)
	return result
}

func (c *CPU) sub(value uint8, withCarry bool) {
	c.a = c.subtract(value, withCarry)
}

func (c *CPU) cp(value uint8) {
	c.subtract(value, false)
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlags(c.a == 0, false, true, false)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlags(c.a == 0, false, false, false)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlags(c.a == 0, false, false, false)
}

// addToHL adds a 16 bit value to HL; Z is preserved.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	sum := uint32(hl) + uint32(value)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, hl&0x0FFF+value&0x0FFF > 0x0FFF)
	c.setFlagToCondition(carryFlag, sum > 0xFFFF)
	c.setHL(uint16(sum))
}

// offsetSP returns SP + e; H and C come from the unsigned low byte addition.
func (c *CPU) offsetSP(e int8) uint16 {
	value := uint16(int16(e))
	low := c.sp & 0xFF
	c.setFlags(false, false, low&0x0F+value&0x0F > 0x0F, low+value&0xFF > 0xFF)
	return c.sp + value
}

func (c *CPU) rlc(value uint8) uint8 {
	result := value<<1 | value>>7
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rrc(value uint8) uint8 {
	result := value>>1 | value<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) rl(value uint8) uint8 {
	result := value<<1 | c.flagToBit(carryFlag)
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) rr(value uint8) uint8 {
	result := value>>1 | c.flagToBit(carryFlag)<<7
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) sla(value uint8) uint8 {
	result := value << 1
	c.setFlags(result == 0, false, false, value&0x80 != 0)
	return result
}

func (c *CPU) sra(value uint8) uint8 {
	result := value>>1 | value&0x80
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) srl(value uint8) uint8 {
	result := value >> 1
	c.setFlags(result == 0, false, false, value&0x01 != 0)
	return result
}

func (c *CPU) swap(value uint8) uint8 {
	result := value<<4 | value>>4
	c.setFlags(result == 0, false, false, false)
	return result
}

// bit tests bit n of value; C is preserved.
func (c *CPU) bit(n uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, value&(1<<n) == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	var adjust uint8
	carry := c.isSetFlag(carryFlag)
	sub := c.isSetFlag(subFlag)

	if c.isSetFlag(halfCarryFlag) || (!sub && c.a&0x0F > 0x09) {
		adjust |= 0x06
	}
	if carry || (!sub && c.a > 0x99) {
		adjust |= 0x60
		carry = true
	}

	if sub {
		c.a -= adjust
	} else {
		c.a += adjust
	}

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
}

func (c *CPU) ccf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
}
