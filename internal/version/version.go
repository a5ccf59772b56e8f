package version

import "fmt"

// Заполняются при сборке: -ldflags "-X .../internal/version.version=v1.2.3"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки
func Info() (v, c, d string) { return version, commit, date }

// Version возвращает только версию сборки (для health и gRPC ответов)
func Version() string { return version }

func String() string {
	return fmt.Sprintf("storefront version=%s commit=%s date=%s", version, commit, date)
}
