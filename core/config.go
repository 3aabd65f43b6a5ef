package core

type ConfigInput struct {
	Rounds int `yaml:"rounds"`
}

type Config struct {
	HashRounds int
}

// SetupConfig fills the runtime config from the configuration file section
func SetupConfig(base ConfigInput) Config {
	rounds := base.Rounds
	if rounds <= 0 {
		rounds = DefaultHashRounds
	}

	return Config{
		HashRounds: rounds,
	}
}
