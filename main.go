package main

import (
	"flag"

	"go.uber.org/zap"

	"focusfeed/crud"
	"focusfeed/http"
	"focusfeed/proxy"
)

// main is the app's entry point.
func main() {
	// The "-prod" flag means we're running in production: a .config.json
	// file is then required and logging gets quieter.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	config := LoadConfig(*productionBool)

	logger := newLogger(config.IsProd())
	defer logger.Sync()
	sugar := logger.Sugar()

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.HMACKey, config.Pepper),
		crud.WithPost(),
		crud.WithLike(),
	)
	must(err)

	// Start the external API proxy services. Missing tokens are reported
	// per call, not at startup, so the rest of the app works without them.
	sound := proxy.NewSoundService(proxy.SoundConfig{Token: config.FreesoundToken}, sugar)
	tasks := proxy.NewTodoistService(proxy.TodoistConfig{Token: config.TodoistToken}, sugar)

	// Set up a webserver and serve the app.
	server := http.NewServer(services, sound, tasks, sugar)
	server.Run(config.Port)
}

// newLogger builds the process logger: terse json in production,
// development output with debug level otherwise.
func newLogger(isProd bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if isProd {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	must(err)
	return logger
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
