package util

// HashString is 32-bit FNV-1a followed by an xorshift mix, used to spread
// snowflake-like keys across shards.
func HashString(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return HashU32(h)
}

func HashU32(val uint32) uint32 {
	val ^= val << 13
	val ^= val >> 17
	val ^= val << 5
	return val
}

// HashIndex maps val into [0, mask]; mask must be a power of two minus one.
func HashIndex(val, mask uint32) uint32 {
	return HashU32(val) & mask
}
