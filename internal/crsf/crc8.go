package crsf

// Table-driven CRC-8 with no reflection and zero init. The framing checksum
// uses the DVB-S2 polynomial 0xD5 over the type byte and payload. Direct
// command packets carry a second, inner checksum using polynomial 0xBA.

var (
	crcTableD5 [256]byte
	crcTableBA [256]byte
)

func init() {
	buildCRCTable(&crcTableD5, 0xD5)
	buildCRCTable(&crcTableBA, 0xBA)
}

func buildCRCTable(tbl *[256]byte, poly byte) {
	for i := range tbl {
		c := byte(i)
		for range 8 {
			if c&0x80 != 0 {
				c = c<<1 ^ poly
			} else {
				c <<= 1
			}
		}
		tbl[i] = c
	}
}

// crc8 computes the framing checksum over p.
func crc8(p []byte) byte {
	var c byte
	for _, b := range p {
		c = crcTableD5[c^b]
	}
	return c
}

// crc8Command computes the direct-command inner checksum over p.
func crc8Command(p []byte) byte {
	var c byte
	for _, b := range p {
		c = crcTableBA[c^b]
	}
	return c
}
