package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	Port           string
	APIAccessKey   string
	SyncConfigPath string
	SyncBatchSize  int
	FetchTimeout   int
	CacheTTL       int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
