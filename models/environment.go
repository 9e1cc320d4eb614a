package models

type Environment struct {
	AppName        string
	Debug          bool
	DbHost         string
	DbPort         string
	DbName         string
	DbUser         string
	DbPassword     string
	DbMinIdleConns int
	DbPoolSize     int

	SuiRpcUrl            string
	MarketplaceAddresses []string

	CycleMinutes        int
	OwnershipWorkers    int
	OwnershipTimeoutSec int

	CronSecret     string
	StakeApiSecret string

	WsLink string
	WsKey  string

	ApiHost string
	ApiPort int
}

// TicksPerHour is the number of scheduler invocations per hour at the
// configured cycle cadence.
func (e *Environment) TicksPerHour() float64 {
	if e.CycleMinutes <= 0 {
		return 6
	}
	return 60 / float64(e.CycleMinutes)
}
