package app

const (
	Name = "qrgen"

	ConfigDir  = "/etc/qrgen"
	ConfigPath = "/etc/qrgen/config.yaml"
)
