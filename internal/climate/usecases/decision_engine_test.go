package usecases_test

import (
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/usecases"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecisionEngine", func() {
	var (
		engine *usecases.DecisionEngine
		t0     time.Time
	)

	BeforeEach(func() {
		engine = usecases.NewDecisionEngine(comfortBand, domain.DefaultDwellTimes())
		t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	})

	It("should start in Off without a dwell", func() {
		state := engine.State()

		Expect(state.Mode).To(Equal(domain.ModeOff))
		Expect(state.Armed).To(BeFalse())
	})

	It("should idle without data", func() {
		decision := engine.Evaluate(t0, domain.AggregateSnapshot{})

		Expect(decision.Idle).To(BeTrue())
		Expect(decision.Transition).To(BeFalse())
		Expect(decision.Mode).To(Equal(domain.ModeOff))
	})

	It("should choose Fan for a cold and a hot location", func() {
		decision := engine.Evaluate(t0, snapshotOf(t0, map[string]float64{"a": 65, "b": 80}))

		Expect(decision.Due).To(BeTrue())
		Expect(decision.Transition).To(BeTrue())
		Expect(decision.Mode).To(Equal(domain.ModeFan))
		Expect(decision.Hold).To(Equal(300 * time.Second))
	})

	It("should stay Off for a mid band location", func() {
		decision := engine.Evaluate(t0, snapshotOf(t0, map[string]float64{"a": 72}))

		Expect(decision.Mode).To(Equal(domain.ModeOff))
		Expect(decision.Transition).To(BeFalse())
	})

	It("should not change the asserted mode before Commit", func() {
		engine.Evaluate(t0, snapshotOf(t0, map[string]float64{"a": 60}))

		Expect(engine.State().Mode).To(Equal(domain.ModeOff))
		Expect(engine.State().Desired).To(Equal(domain.ModeHeat))
	})

	When("a mode has been committed", func() {
		BeforeEach(func() {
			decision := engine.Evaluate(t0, snapshotOf(t0, map[string]float64{"a": 60}))
			Expect(decision.Mode).To(Equal(domain.ModeHeat))
			engine.Commit(decision)
		})

		It("should record the mode and its dwell", func() {
			state := engine.State()

			Expect(state.Mode).To(Equal(domain.ModeHeat))
			Expect(state.EnteredAt).To(Equal(t0))
			Expect(state.NextEvaluation).To(Equal(t0.Add(300 * time.Second)))
			Expect(state.Transitions).To(Equal(1))
		})

		It("should hold a conflicting mode within the dwell", func() {
			at := t0.Add(299 * time.Second)
			decision := engine.Evaluate(at, snapshotOf(at, map[string]float64{"a": 80}))

			Expect(decision.Transition).To(BeFalse())
			Expect(decision.Held).To(BeTrue())
			Expect(decision.Mode).To(Equal(domain.ModeHeat))
			Expect(decision.Hold).To(Equal(time.Second))
			Expect(engine.State().Desired).To(Equal(domain.ModeCool))
		})

		It("should switch once the dwell expired", func() {
			at := t0.Add(300 * time.Second)
			decision := engine.Evaluate(at, snapshotOf(at, map[string]float64{"a": 80}))

			Expect(decision.Transition).To(BeTrue())
			Expect(decision.Previous).To(Equal(domain.ModeHeat))
			Expect(decision.Mode).To(Equal(domain.ModeCool))
		})

		It("should not transition when the same mode is selected again", func() {
			at := t0.Add(400 * time.Second)
			snapshot := snapshotOf(at, map[string]float64{"a": 60})

			first := engine.Evaluate(at, snapshot)
			second := engine.Evaluate(at, snapshot)

			Expect(first.Transition).To(BeFalse())
			Expect(second).To(Equal(first))
			engine.Commit(second)
			Expect(engine.State().Transitions).To(Equal(1))
		})

		It("should use the Off dwell after switching off", func() {
			at := t0.Add(300 * time.Second)
			decision := engine.Evaluate(at, snapshotOf(at, map[string]float64{"a": 72}))
			engine.Commit(decision)

			Expect(engine.State().NextEvaluation).To(Equal(at.Add(120 * time.Second)))
		})

		It("should drive the recorded mode again after a failed write", func() {
			at := t0.Add(300 * time.Second)
			engine.Desync()

			decision := engine.Evaluate(at, snapshotOf(at, map[string]float64{"a": 60}))

			Expect(decision.Transition).To(BeTrue())
			Expect(decision.Mode).To(Equal(domain.ModeHeat))
			Expect(decision.Previous).To(Equal(domain.ModeHeat))
			Expect(engine.State().Synced).To(BeFalse())

			engine.Commit(decision)
			Expect(engine.State().Synced).To(BeTrue())
			Expect(engine.State().Transitions).To(Equal(1))
			Expect(engine.State().NextEvaluation).To(Equal(at.Add(300 * time.Second)))
		})

		It("should keep an unsynced engine within its dwell", func() {
			at := t0.Add(10 * time.Second)
			engine.Desync()

			decision := engine.Evaluate(at, snapshotOf(at, map[string]float64{"a": 60}))

			Expect(decision.Transition).To(BeFalse())
		})

		It("should force a mode regardless of the dwell", func() {
			decision := engine.Force(t0.Add(time.Second), domain.ModeOff)
			engine.Commit(decision)

			Expect(decision.Transition).To(BeTrue())
			Expect(engine.State().Mode).To(Equal(domain.ModeOff))
		})
	})

	It("should only record the desired mode on Observe", func() {
		desired := engine.Observe(t0, snapshotOf(t0, map[string]float64{"a": 80}))

		Expect(desired).To(Equal(domain.ModeCool))
		Expect(engine.State().Mode).To(Equal(domain.ModeOff))
		Expect(engine.State().ObservedAt).To(Equal(t0))
	})
})
