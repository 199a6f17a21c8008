package evaluation

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/tts-eval/pkg/logging"
	"github.com/RyanBlaney/tts-eval/pkg/params"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type SentenceTestSuite struct {
	suite.Suite
	dir    string
	opts   Options
	logs   *observer.ObservedLogs
	logger logging.Logger
}

func TestSentenceTestSuite(t *testing.T) {
	suite.Run(t, new(SentenceTestSuite))
}

func (s *SentenceTestSuite) SetupTest() {
	s.dir = s.T().TempDir()

	s.opts = DefaultOptions()
	s.opts.StateCount = 2
	s.opts.ReferenceLpcOrder = 4
	s.opts.TargetLpcOrder = 4
	s.opts.WeightedLspDimension = 4

	core, logs := observer.New(zapcore.DebugLevel)
	s.logs = logs
	s.logger = logging.NewFromZap(zap.New(core))
}

var (
	fixturePhones = []string{"sil", "a", "sil"}
	fixtureStates = [][]int{{2, 2}, {3, 3}, {1, 1}}
	fixtureF0     = []float64{0, 0, 0, 0, 100, 110, 120, 130, 140, 150, 0, 0}
)

func fixtureLsp(frames, order int) [][]float64 {
	out := make([][]float64, frames)
	for i := range out {
		frame := make([]float64, order+1)
		for k := range order {
			frame[k] = float64(k+1) / float64(2*(order+1))
		}
		frame[order] = 0.5 + float64(i%3)*0.25
		out[i] = frame
	}
	return out
}

// writeSide writes one side of a sentence and returns its file set
func (s *SentenceTestSuite) writeSide(name string, states [][]int, f0 []float64, lsp [][]float64) ParameterFiles {
	files := ParameterFiles{
		Duration: filepath.Join(s.dir, name+".dur"),
		F0:       filepath.Join(s.dir, name+".f0"),
		Lsp:      filepath.Join(s.dir, name+".lsp"),
	}
	s.Require().NoError(params.WriteDuration(files.Duration, params.PhoneDurationLines(fixturePhones, states)))
	s.Require().NoError(params.WriteF0(files.F0, f0))
	s.Require().NoError(params.WriteLsp(files.Lsp, lsp))
	return files
}

func fixtureLattice() []LatticeNode {
	nodes := make([]LatticeNode, len(fixturePhones))
	for i, p := range fixturePhones {
		nodes[i] = LatticeNode{Candidates: []Unit{{Phone: p, UnitID: 100 + i}}}
	}
	return nodes
}

func (s *SentenceTestSuite) TestIdenticalSentence() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))
	tgt := s.writeSide("tgt", fixtureStates, fixtureF0, fixtureLsp(12, 4))

	result, err := EvaluateSentence(SentenceInput{
		Index:     3,
		ID:        "0003",
		Reference: ref,
		Target:    tgt,
		Lattice:   fixtureLattice(),
	}, s.opts, s.logger)
	s.Require().NoError(err)

	s.Equal(12, result.Frames)
	s.Equal(0.0, result.Duration.RMSE().Float())
	s.Equal(6, result.UV.VoicedFrameNumberInBoth())
	s.Equal(0.0, result.F0.RMSE().Float())
	s.InDelta(1.0, result.F0.Correlation().Float(), 1e-9)
	s.Equal(0, result.F0Outliers.Count)
	s.Equal(0.0, result.F0StateLevel.RMSE().Float())
	s.Equal(0.0, result.Lsp.RMSE().Float())
	s.Equal(0.0, result.WeightedLsp.RMSE().Float())
	s.Equal(0.0, result.Spectrum.RMSE().Float())
	s.Equal(0.0, result.SpectrumWithGain.RMSE().Float())
	s.Equal(0.0, result.Gain.RMSE().Float())
	s.InDelta(1.0, result.Gain.Correlation().Float(), 1e-9)

	s.Require().Len(result.PhoneResults, 1, "silence phones are skipped")
	phone := result.PhoneResults[0]
	s.Equal(3, phone.SentenceIndex)
	s.Equal(4, phone.StartFrame)
	s.Equal(6, phone.FrameLength)
	s.Equal("a", phone.Phone)
	s.Equal(101, phone.UnitID)
	s.Equal(0.0, phone.DurationDistance.Float())
	s.Equal(0.0, phone.F0RMSE.Float())
	s.InDelta(1.0, phone.F0Correlation.Float(), 1e-9)
	s.Equal(0.0, phone.LspDistance.Float())
	s.Equal(0.0, phone.SpectrumDistance.Float())
	s.Equal(0.0, phone.GainRMSE.Float())

	s.Zero(s.logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func (s *SentenceTestSuite) TestDurationDifference() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))
	tgt := s.writeSide("tgt", [][]int{{2, 2}, {4, 4}, {1, 1}}, fixtureF0, fixtureLsp(12, 4))

	result, err := EvaluateSentence(SentenceInput{
		ID: "dur", Reference: ref, Target: tgt, Lattice: fixtureLattice(),
	}, s.opts, s.logger)
	s.Require().NoError(err)

	// phone "a" averages 3 against 4 frames per state
	s.InDelta(2*0.005/math.Sqrt(3), result.Duration.RMSE().Float(), 1e-12)
	s.InDelta(2*0.005, result.Duration.MaxDistance().Float(), 1e-12)
	s.Require().Len(result.PhoneResults, 1)
	s.InDelta(2*0.005, result.PhoneResults[0].DurationDistance.Float(), 1e-12)
}

func (s *SentenceTestSuite) TestTruncatesShorterTarget() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))
	tgt := s.writeSide("tgt", fixtureStates, fixtureF0[:10], fixtureLsp(9, 4))

	result, err := EvaluateSentence(SentenceInput{ID: "short", Reference: ref, Target: tgt}, s.opts, s.logger)
	s.Require().NoError(err)

	s.Equal(10, result.UV.ComparedFrames())
	s.Equal(9, result.Frames)
	s.Empty(result.PhoneResults)

	warnings := s.logs.FilterMessage("Frame counts differ, truncating to the shorter sequence")
	s.Equal(2, warnings.Len())
}

func (s *SentenceTestSuite) TestLpcOrderMismatchSkipsSpectralMeasures() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))
	tgt := s.writeSide("tgt", fixtureStates, fixtureF0, fixtureLsp(12, 2))
	s.opts.TargetLpcOrder = 2

	result, err := EvaluateSentence(SentenceInput{
		ID: "orders", Reference: ref, Target: tgt, Lattice: fixtureLattice(),
	}, s.opts, s.logger)
	s.Require().NoError(err)

	s.False(result.Lsp.RMSE().IsComputed())
	s.False(result.WeightedLsp.RMSE().IsComputed())
	s.False(result.Spectrum.RMSE().IsComputed())
	s.False(result.SpectrumWithGain.RMSE().IsComputed())
	s.Equal(0.0, result.Gain.RMSE().Float())

	s.Require().Len(result.PhoneResults, 1)
	s.False(result.PhoneResults[0].LspDistance.IsComputed())
	s.True(result.PhoneResults[0].GainRMSE.IsComputed())
	s.Equal(1, s.logs.FilterMessage("LPC orders differ, skipping LSP and spectrum comparison").Len())
}

func (s *SentenceTestSuite) TestLatticeErrors() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))
	tgt := s.writeSide("tgt", fixtureStates, fixtureF0, fixtureLsp(12, 4))

	lattice := fixtureLattice()
	lattice[1].Candidates = append(lattice[1].Candidates, Unit{Phone: "e", UnitID: 9})
	_, err := EvaluateSentence(SentenceInput{ID: "multi", Reference: ref, Target: tgt, Lattice: lattice}, s.opts, s.logger)
	s.ErrorIs(err, ErrMultipleCandidates)

	_, err = EvaluateSentence(SentenceInput{ID: "short", Reference: ref, Target: tgt, Lattice: fixtureLattice()[:2]}, s.opts, s.logger)
	s.ErrorIs(err, ErrLatticeMismatch)
}

func (s *SentenceTestSuite) TestFileErrors() {
	ref := s.writeSide("ref", fixtureStates, fixtureF0, fixtureLsp(12, 4))

	missing := ref
	missing.F0 = filepath.Join(s.dir, "missing.f0")
	_, err := EvaluateSentence(SentenceInput{ID: "missing", Reference: ref, Target: missing}, s.opts, s.logger)
	s.ErrorIs(err, os.ErrNotExist)

	unset := ref
	unset.Lsp = ""
	_, err = EvaluateSentence(SentenceInput{ID: "unset", Reference: unset, Target: ref}, s.opts, s.logger)
	s.ErrorIs(err, ErrMissingFile)

	bad := s.opts
	bad.StateCount = 0
	_, err = EvaluateSentence(SentenceInput{ID: "opts", Reference: ref, Target: ref}, bad, s.logger)
	s.ErrorIs(err, ErrInvalidOptions)
}
