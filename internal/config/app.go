package config

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
	Beat   BeatConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	beatCfg, err := LoadBeat()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
		Beat:   beatCfg,
	}, nil
}
