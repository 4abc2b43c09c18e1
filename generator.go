package sfsynth

import "math"

// SFGenerator identifies one of the 61 named generator operations defined
// by the SoundFont 2 specification. Most are irrelevant to this engine
// (LFO, filter, and envelope generators are a Non-goal) but the full
// enumeration is kept so a dump tool can name every generator it sees.
type SFGenerator uint16

const (
	GenStartAddrsOffset           SFGenerator = 0
	GenEndAddrsOffset             SFGenerator = 1
	GenStartloopAddrsOffset       SFGenerator = 2
	GenEndloopAddrsOffset         SFGenerator = 3
	GenStartAddrsCoarseOffset     SFGenerator = 4
	GenModLfoToPitch              SFGenerator = 5
	GenVibLfoToPitch              SFGenerator = 6
	GenModEnvToPitch              SFGenerator = 7
	GenInitialFilterFc            SFGenerator = 8
	GenInitialFilterQ             SFGenerator = 9
	GenModLfoToFilterFc           SFGenerator = 10
	GenModEnvToFilterFc           SFGenerator = 11
	GenEndAddrsCoarseOffset       SFGenerator = 12
	GenModLfoToVolume             SFGenerator = 13
	GenUnused1                    SFGenerator = 14
	GenChorusEffectsSend          SFGenerator = 15
	GenReverbEffectsSend          SFGenerator = 16
	GenPan                        SFGenerator = 17
	GenUnused2                    SFGenerator = 18
	GenUnused3                    SFGenerator = 19
	GenUnused4                    SFGenerator = 20
	GenDelayModLFO                SFGenerator = 21
	GenFreqModLFO                 SFGenerator = 22
	GenDelayVibLFO                SFGenerator = 23
	GenFreqVibLFO                 SFGenerator = 24
	GenDelayModEnv                SFGenerator = 25
	GenAttackModEnv               SFGenerator = 26
	GenHoldModEnv                 SFGenerator = 27
	GenDecayModEnv                SFGenerator = 28
	GenSustainModEnv              SFGenerator = 29
	GenReleaseModEnv              SFGenerator = 30
	GenKeynumToModEnvHold         SFGenerator = 31
	GenKeynumToModEnvDecay        SFGenerator = 32
	GenDelayVolEnv                SFGenerator = 33
	GenAttackVolEnv               SFGenerator = 34
	GenHoldVolEnv                 SFGenerator = 35
	GenDecayVolEnv                SFGenerator = 36
	GenSustainVolEnv              SFGenerator = 37
	GenReleaseVolEnv              SFGenerator = 38
	GenKeynumToVolEnvHold         SFGenerator = 39
	GenKeynumToVolEnvDecay        SFGenerator = 40
	GenInstrument                 SFGenerator = 41
	GenReserved1                  SFGenerator = 42
	GenKeyRange                   SFGenerator = 43
	GenVelRange                   SFGenerator = 44
	GenStartloopAddrsCoarseOffset SFGenerator = 45
	GenKeynum                     SFGenerator = 46
	GenVelocity                   SFGenerator = 47
	GenInitialAttenuation         SFGenerator = 48
	GenReserved2                  SFGenerator = 49
	GenEndloopAddrsCoarseOffset   SFGenerator = 50
	GenCoarseTune                 SFGenerator = 51
	GenFineTune                   SFGenerator = 52
	GenSampleID                   SFGenerator = 53
	GenSampleModes                SFGenerator = 54
	GenReserved3                  SFGenerator = 55
	GenScaleTuning                SFGenerator = 56
	GenExclusiveClass             SFGenerator = 57
	GenOverridingRootKey          SFGenerator = 58
	GenUnused5                    SFGenerator = 59
	GenEndOper                    SFGenerator = 60
)

var genOperNames = map[SFGenerator]string{
	GenStartAddrsOffset:           "startAddrsOffset",
	GenEndAddrsOffset:             "endAddrsOffset",
	GenStartloopAddrsOffset:       "startloopAddrsOffset",
	GenEndloopAddrsOffset:         "endloopAddrsOffset",
	GenStartAddrsCoarseOffset:     "startAddrsCoarseOffset",
	GenModLfoToPitch:              "modLfoToPitch",
	GenVibLfoToPitch:              "vibLfoToPitch",
	GenModEnvToPitch:              "modEnvToPitch",
	GenInitialFilterFc:            "initialFilterFc",
	GenInitialFilterQ:             "initialFilterQ",
	GenModLfoToFilterFc:           "modLfoToFilterFc",
	GenModEnvToFilterFc:           "modEnvToFilterFc",
	GenEndAddrsCoarseOffset:       "endAddrsCoarseOffset",
	GenModLfoToVolume:             "modLfoToVolume",
	GenUnused1:                    "unused1",
	GenChorusEffectsSend:          "chorusEffectsSend",
	GenReverbEffectsSend:          "reverbEffectsSend",
	GenPan:                        "pan",
	GenUnused2:                    "unused2",
	GenUnused3:                    "unused3",
	GenUnused4:                    "unused4",
	GenDelayModLFO:                "delayModLFO",
	GenFreqModLFO:                 "freqModLFO",
	GenDelayVibLFO:                "delayVibLFO",
	GenFreqVibLFO:                 "freqVibLFO",
	GenDelayModEnv:                "delayModEnv",
	GenAttackModEnv:               "attackModEnv",
	GenHoldModEnv:                 "holdModEnv",
	GenDecayModEnv:                "decayModEnv",
	GenSustainModEnv:              "sustainModEnv",
	GenReleaseModEnv:              "releaseModEnv",
	GenKeynumToModEnvHold:         "keynumToModEnvHold",
	GenKeynumToModEnvDecay:        "keynumToModEnvDecay",
	GenDelayVolEnv:                "delayVolEnv",
	GenAttackVolEnv:               "attackVolEnv",
	GenHoldVolEnv:                 "holdVolEnv",
	GenDecayVolEnv:                "decayVolEnv",
	GenSustainVolEnv:              "sustainVolEnv",
	GenReleaseVolEnv:              "releaseVolEnv",
	GenKeynumToVolEnvHold:         "keynumToVolEnvHold",
	GenKeynumToVolEnvDecay:        "keynumToVolEnvDecay",
	GenInstrument:                 "instrument",
	GenReserved1:                  "reserved1",
	GenKeyRange:                   "keyRange",
	GenVelRange:                   "velRange",
	GenStartloopAddrsCoarseOffset: "startloopAddrsCoarseOffset",
	GenKeynum:                     "keynum",
	GenVelocity:                   "velocity",
	GenInitialAttenuation:         "initialAttenuation",
	GenReserved2:                  "reserved2",
	GenEndloopAddrsCoarseOffset:   "endloopAddrsCoarseOffset",
	GenCoarseTune:                 "coarseTune",
	GenFineTune:                   "fineTune",
	GenSampleID:                   "sampleID",
	GenSampleModes:                "sampleModes",
	GenReserved3:                  "reserved3",
	GenScaleTuning:                "scaleTuning",
	GenExclusiveClass:             "exclusiveClass",
	GenOverridingRootKey:          "overridingRootKey",
	GenUnused5:                    "unused5",
	GenEndOper:                    "endOper",
}

// String returns the SF2-defined name of the generator, or "unknown" for
// any value outside the 61-entry enumeration.
func (g SFGenerator) String() string {
	if name, ok := genOperNames[g]; ok {
		return name
	}
	return "unknown"
}

// GenAmount is the raw 16-bit amount field paired with a generator
// operator. The SF2 spec interprets these two bytes three different
// ways depending on the operator; callers pick the view they need.
type GenAmount uint16

// Range interprets the amount as a (lo, hi) byte pair, used by
// GenKeyRange and GenVelRange.
func (a GenAmount) Range() (lo, hi uint8) {
	return uint8(a), uint8(a >> 8)
}

// Signed interprets the amount as a signed 16-bit integer, used for pan,
// tuning, and timecent-valued generators.
func (a GenAmount) Signed() int16 {
	return int16(a)
}

// Unsigned interprets the amount as an unsigned 16-bit integer, used for
// sample IDs and root-key overrides.
func (a GenAmount) Unsigned() uint16 {
	return uint16(a)
}

// Generator pairs a generator operator with its amount.
type Generator struct {
	Oper   SFGenerator
	Amount GenAmount
}

// timecentBase is 2^(1/1200), the per-timecent multiplicative step.
const timecentBase = 1.0005777895065548

// TimecentsToSeconds converts a timecent-valued generator amount to
// seconds: n timecents = 2^(n/1200) seconds.
func TimecentsToSeconds(tc int16) float64 {
	return math.Pow(timecentBase, float64(tc))
}
