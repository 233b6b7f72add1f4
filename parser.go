package lwmqtt

import "log"

// parserState enumerates the receive state machine.
type parserState uint8

const (
	parserInit       parserState = iota // waiting for a fixed header byte
	parserCalcRemLen                    // accumulating the remaining length
	parserReadRem                       // collecting the packet body
)

// parserRun is the working state of the incremental parser. The parser is
// back at parserInit between any two packets.
type parserRun struct {
	state  parserState
	hdr    byte   // fixed header byte of the packet being assembled
	remLen uint32 // accumulated remaining length
	mult   uint32 // VLI shift counter
	pos    uint32 // bytes of the body consumed so far
}

func (c *Client) resetParser() {
	c.parser = parserRun{}
}

// parseReceived feeds one receive buffer into the state machine, dispatching
// every completed packet. The buffer may hold a fraction of a packet, several
// packets, or both; split points inside the fixed header, the length encoding
// or the body are all handled.
//
// When a whole packet body sits inside one linear segment it is dispatched
// straight out of the transport's memory without touching the scratch buffer.
// That zero copy path relies on dispatch completing before this function
// returns; packets that span segments are collected into the scratch buffer
// instead, and a packet larger than the scratch buffer is counted through and
// discarded.
func (c *Client) parseReceived(p Pbuf) {
	for offset := 0; ; {
		seg := p.LinearAt(offset)
		if seg == nil {
			return
		}
		offset += len(seg)

		for idx := 0; idx < len(seg); {
			switch c.parser.state {
			case parserInit:
				c.parser = parserRun{state: parserCalcRemLen, hdr: seg[idx]}
				idx++

			case parserCalcRemLen:
				ch := seg[idx]
				idx++
				c.parser.remLen |= uint32(ch&0x7F) << (7 * c.parser.mult)
				c.parser.mult++
				if ch&0x80 != 0 {
					if c.parser.mult >= 4 {
						debugf("mqtt parser: remaining length overflow, hdr=0x%02X", c.parser.hdr)
						c.parser.state = parserInit
					}
					continue
				}
				if c.parser.remLen == 0 {
					c.dispatchPacket(nil)
					c.parser.state = parserInit
					continue
				}
				if rem := len(seg) - idx; rem >= int(c.parser.remLen) {
					// Whole body inside this segment: dispatch in place.
					n := int(c.parser.remLen)
					c.dispatchPacket(seg[idx : idx+n])
					idx += n
					c.parser.state = parserInit
					continue
				}
				c.parser.state = parserReadRem

			case parserReadRem:
				take := int(c.parser.remLen - c.parser.pos)
				if rem := len(seg) - idx; take > rem {
					take = rem
				}
				// Copy what fits into the scratch buffer; every byte is
				// counted regardless.
				if fit := len(c.rxBuf) - int(c.parser.pos); fit > 0 {
					if fit > take {
						fit = take
					}
					copy(c.rxBuf[c.parser.pos:], seg[idx:idx+fit])
				}
				c.parser.pos += uint32(take)
				idx += take

				if c.parser.pos == c.parser.remLen {
					if int(c.parser.pos) <= len(c.rxBuf) {
						c.dispatchPacket(c.rxBuf[:c.parser.pos])
					} else {
						log.Printf("mqtt packet discarded: rem_len=%d, rx_buff_len=%d", c.parser.remLen, len(c.rxBuf))
					}
					c.parser.state = parserInit
				}
			}
		}
	}
}
