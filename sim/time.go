package sim

// VTime is the simulated time. It only moves forward, by a fixed number of
// units every half clock cycle.
type VTime uint64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTime
}
