package protocol

// Timing holds the constant pulse timings of one protocol, in microseconds.
//
// A zero HeaderMark means the protocol is headerless, a zero StopMark means
// no trailing stop mark. Unit is the Manchester half-bit for RC5 and RC6.
// FramePeriod is the start-to-start spacing of repeated frames and FrameGap
// the minimum silence after a frame; whichever is longer wins. MinFrames is
// how many frames one conventional key press sends.
type Timing struct {
	PreambleMark  uint32 `json:"preamble_mark_us,omitempty"`
	PreambleSpace uint32 `json:"preamble_space_us,omitempty"`
	HeaderMark    uint32 `json:"header_mark_us"`
	HeaderSpace   uint32 `json:"header_space_us"`
	OneMark       uint32 `json:"bit_one_mark_us"`
	OneSpace      uint32 `json:"bit_one_space_us"`
	ZeroMark      uint32 `json:"bit_zero_mark_us"`
	ZeroSpace     uint32 `json:"bit_zero_space_us"`
	StopMark      uint32 `json:"stop_bit_us,omitempty"`
	Unit          uint32 `json:"unit_us,omitempty"`
	RepeatMark    uint32 `json:"repeat_mark_us,omitempty"`
	RepeatSpace   uint32 `json:"repeat_space_us,omitempty"`
	CarrierHz     uint32 `json:"carrier_freq_hz"`
	DutyCycle     uint8  `json:"duty_cycle_percent"`
	FramePeriod   uint32 `json:"frame_period_us,omitempty"`
	FrameGap      uint32 `json:"frame_gap_us,omitempty"`
	MinFrames     int    `json:"min_frames"`
}

// HasStop reports whether frames end with a stop mark
func (t Timing) HasStop() bool { return t.StopMark != 0 }

// HasHeader reports whether frames start with a header symbol
func (t Timing) HasHeader() bool { return t.HeaderMark != 0 }

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
const (
	necUnit = 560

	necHeaderMark  = 9000
	necHeaderSpace = 4500
	necRepeatSpace = 2250
	necBitMark     = necUnit
	necOneSpace    = 1690
	necZeroSpace   = necUnit
	necPeriod      = 108000
)

// Sony SIRC: https://www.sbprojects.net/knowledge/ir/sirc.php
const (
	sonyUnit = 600

	sonyHeaderMark = sonyUnit * 4 // 2.4 ms
	sonyOneMark    = sonyUnit * 2 // 1.2 ms
	sonyZeroMark   = sonyUnit
	sonySpace      = sonyUnit
	sonyPeriod     = 45000
)

// Philips RC5 and RC6 half-bit units
const (
	rc5Unit   = 889
	rc5Period = rc5Unit * 128 // 113.8 ms

	rc6Unit        = 444
	rc6HeaderMark  = 2666 // 6 units
	rc6HeaderSpace = 889  // 2 units
	rc6Period      = rc6Unit * 240
)

// Kaseikyo / Panasonic
const (
	kaseikyoUnit = 432

	kaseikyoHeaderMark  = kaseikyoUnit * 8 // 3.456 ms
	kaseikyoHeaderSpace = kaseikyoUnit * 4 // 1.728 ms
	kaseikyoOneSpace    = kaseikyoUnit * 3
	kaseikyoPeriod      = 130000
)

// Sharp and Denon share bit timings
const (
	sharpBitMark   = 260
	sharpOneSpace  = 1820
	sharpZeroSpace = 780
)

var timings = [protocolCount]Timing{
	NEC: {
		HeaderMark: necHeaderMark, HeaderSpace: necHeaderSpace,
		OneMark: necBitMark, OneSpace: necOneSpace,
		ZeroMark: necBitMark, ZeroSpace: necZeroSpace,
		StopMark:   necBitMark,
		RepeatMark: necHeaderMark, RepeatSpace: necRepeatSpace,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: necPeriod, MinFrames: 1,
	},
	NECExt: {
		HeaderMark: necHeaderMark, HeaderSpace: necHeaderSpace,
		OneMark: necBitMark, OneSpace: necOneSpace,
		ZeroMark: necBitMark, ZeroSpace: necZeroSpace,
		StopMark:   necBitMark,
		RepeatMark: necHeaderMark, RepeatSpace: necRepeatSpace,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: necPeriod, MinFrames: 1,
	},
	Sony: {
		HeaderMark: sonyHeaderMark, HeaderSpace: sonySpace,
		OneMark: sonyOneMark, OneSpace: sonySpace,
		ZeroMark: sonyZeroMark, ZeroSpace: sonySpace,
		CarrierHz: 40000, DutyCycle: 33,
		FramePeriod: sonyPeriod, MinFrames: 3,
	},
	RC5: {
		OneMark: rc5Unit, OneSpace: rc5Unit,
		ZeroMark: rc5Unit, ZeroSpace: rc5Unit,
		Unit:      rc5Unit,
		CarrierHz: 36000, DutyCycle: 25,
		FramePeriod: rc5Period, MinFrames: 1,
	},
	RC6: {
		HeaderMark: rc6HeaderMark, HeaderSpace: rc6HeaderSpace,
		OneMark: rc6Unit, OneSpace: rc6Unit,
		ZeroMark: rc6Unit, ZeroSpace: rc6Unit,
		Unit:      rc6Unit,
		CarrierHz: 36000, DutyCycle: 25,
		FramePeriod: rc6Period, FrameGap: rc6HeaderMark, MinFrames: 1,
	},
	Samsung: {
		HeaderMark: 4500, HeaderSpace: 4500,
		OneMark: necBitMark, OneSpace: necOneSpace,
		ZeroMark: necBitMark, ZeroSpace: necZeroSpace,
		StopMark:  necBitMark,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: necPeriod, MinFrames: 1,
	},
	Panasonic: {
		HeaderMark: kaseikyoHeaderMark, HeaderSpace: kaseikyoHeaderSpace,
		OneMark: kaseikyoUnit, OneSpace: kaseikyoOneSpace,
		ZeroMark: kaseikyoUnit, ZeroSpace: kaseikyoUnit,
		CarrierHz: 37000, DutyCycle: 33,
		FramePeriod: kaseikyoPeriod, MinFrames: 1,
	},
	JVC: {
		HeaderMark: 8400, HeaderSpace: 4200,
		OneMark: 526, OneSpace: 1574,
		ZeroMark: 526, ZeroSpace: 526,
		StopMark:  526,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: 55000, MinFrames: 1,
	},
	LG: {
		HeaderMark: 8500, HeaderSpace: 4250,
		OneMark: 550, OneSpace: 1600,
		ZeroMark: 550, ZeroSpace: 550,
		StopMark:   550,
		RepeatMark: 8500, RepeatSpace: 2250,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: necPeriod, MinFrames: 1,
	},
	Mitsubishi: {
		OneMark: 300, OneSpace: 2100,
		ZeroMark: 300, ZeroSpace: 900,
		StopMark:  300,
		CarrierHz: 33000, DutyCycle: 50,
		FramePeriod: 53560, FrameGap: 28080, MinFrames: 2,
	},
	Sharp: {
		OneMark: sharpBitMark, OneSpace: sharpOneSpace,
		ZeroMark: sharpBitMark, ZeroSpace: sharpZeroSpace,
		StopMark:  sharpBitMark,
		CarrierHz: 38000, DutyCycle: 33,
		FrameGap: 40000, MinFrames: 1,
	},
	Dish: {
		HeaderMark: 400, HeaderSpace: 6100,
		OneMark: 400, OneSpace: 1700,
		ZeroMark: 400, ZeroSpace: 2800,
		StopMark:  400,
		CarrierHz: 57600, DutyCycle: 50,
		FrameGap: 6100, MinFrames: 1,
	},
	Aiwa: {
		HeaderMark: 8800, HeaderSpace: 4400,
		OneMark: 550, OneSpace: 1650,
		ZeroMark: 550, ZeroSpace: 550,
		StopMark:   550,
		RepeatMark: 8800, RepeatSpace: 2200,
		CarrierHz: 38000, DutyCycle: 33,
		FramePeriod: necPeriod, MinFrames: 1,
	},
	Denon: {
		OneMark: sharpBitMark, OneSpace: sharpOneSpace,
		ZeroMark: sharpBitMark, ZeroSpace: sharpZeroSpace,
		StopMark:  sharpBitMark,
		CarrierHz: 38000, DutyCycle: 33,
		FrameGap: 45000, MinFrames: 1,
	},
	Kaseikyo: {
		HeaderMark: kaseikyoHeaderMark, HeaderSpace: kaseikyoHeaderSpace,
		OneMark: kaseikyoUnit, OneSpace: kaseikyoOneSpace,
		ZeroMark: kaseikyoUnit, ZeroSpace: kaseikyoUnit,
		CarrierHz: 37000, DutyCycle: 33,
		FramePeriod: kaseikyoPeriod, MinFrames: 1,
	},
	Whynter: {
		PreambleMark: 750, PreambleSpace: 750,
		HeaderMark: 2850, HeaderSpace: 2850,
		OneMark: 750, OneSpace: 2150,
		ZeroMark: 750, ZeroSpace: 750,
		StopMark:  750,
		CarrierHz: 38000, DutyCycle: 33,
		FrameGap: 100000, MinFrames: 1,
	},
	Coolix: {
		HeaderMark: 4692, HeaderSpace: 4416,
		OneMark: 552, OneSpace: 1656,
		ZeroMark: 552, ZeroSpace: 552,
		StopMark:  552,
		CarrierHz: 38000, DutyCycle: 33,
		FrameGap: 5244, MinFrames: 1,
	},
}

// TimingFor returns the timing constants of p. Generic and out-of-range
// values report false.
func TimingFor(p Protocol) (Timing, bool) {
	if p >= protocolCount || p == Generic {
		return Timing{}, false
	}
	return timings[p], true
}
