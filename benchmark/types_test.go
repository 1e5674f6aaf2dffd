package benchmark

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config `inject:""`
	Logger *Logger `inject:""`
}

type Cache struct {
	Logger *Logger `inject:""`
}

type Repository struct {
	DB    *Database `inject:""`
	Cache *Cache    `inject:""`
}

type Service struct {
	Repo   *Repository `inject:""`
	Logger *Logger     `inject:""`
}
