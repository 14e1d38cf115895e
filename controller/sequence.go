package controller

// Sequence emits a fixed number of events spaced by a delay. The first
// emission happens on Start. A sequence whose validity check fails is
// cancelled before its next emission.
type Sequence struct {
	remaining int
	delay     float64
	timer     float64
	emitted   int
	valid     func() bool
	emit      func(i int)
}

// Start begins a new sequence, cancelling any running one.
func (s *Sequence) Start(count int, delay float64, valid func() bool, emit func(i int)) {
	s.Cancel()
	if count <= 0 || emit == nil {
		return
	}
	s.remaining = count
	s.delay = delay
	s.valid = valid
	s.emit = emit
	s.fire()
	s.timer = delay
}

// Step advances the sequence clock by dt.
func (s *Sequence) Step(dt float64) {
	if s.remaining <= 0 {
		return
	}
	s.timer -= dt
	for s.remaining > 0 && s.timer <= 0 {
		if !s.fire() {
			return
		}
		s.timer += s.delay
		if s.delay <= 0 {
			s.timer = 0
		}
	}
}

func (s *Sequence) fire() bool {
	if s.valid != nil && !s.valid() {
		s.Cancel()
		return false
	}
	s.emit(s.emitted)
	s.emitted++
	s.remaining--
	if s.remaining <= 0 {
		s.valid, s.emit = nil, nil
	}
	return true
}

func (s *Sequence) Cancel() {
	s.remaining = 0
	s.timer = 0
	s.emitted = 0
	s.valid, s.emit = nil, nil
}

func (s *Sequence) Active() bool { return s.remaining > 0 }

// Emitted counts emissions of the running sequence.
func (s *Sequence) Emitted() int { return s.emitted }
