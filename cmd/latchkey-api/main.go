// Command latchkey-api serves the Scan API (SPEC_FULL.md §7.3) over HTTP,
// backed by the same catalogue and engine the latchkey CLI uses.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"latchkey/api"
	"latchkey/catalog"
	"latchkey/logx"
	"latchkey/store"
)

func main() {
	catalogueDir := flag.String("catalogue", "catalogue", "directory of .yml credential profiles")
	addr := flag.String("addr", ":8080", "listen address")
	mongoURI := flag.String("mongo-uri", os.Getenv("LATCHKEY_MONGO_URI"), "MongoDB connection string (optional)")
	mongoDB := flag.String("mongo-db", "latchkey", "MongoDB database name")
	jwtSecret := flag.String("jwt-secret", os.Getenv("LATCHKEY_JWT_SECRET"), "secret used to sign issued tokens")
	flag.Parse()

	log := logx.New("latchkey-api", logx.LevelInfo, os.Stderr)

	if *jwtSecret == "" {
		log.Criticalf("jwt secret must be set via -jwt-secret or LATCHKEY_JWT_SECRET")
		os.Exit(1)
	}

	cat, err := catalog.Load(*catalogueDir, catalog.LoadOptions{}, log)
	if err != nil {
		log.Criticalf("loading catalogue: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var results *store.Store
	var users *api.Users
	if *mongoURI != "" {
		results, err = store.Connect(ctx, *mongoURI, *mongoDB)
		if err != nil {
			log.Criticalf("connecting to mongo for results: %v", err)
			os.Exit(1)
		}
		users, err = api.Connect(ctx, *mongoURI, *mongoDB)
		if err != nil {
			log.Criticalf("connecting to mongo for accounts: %v", err)
			os.Exit(1)
		}
	} else {
		log.Warnf("no -mongo-uri given: results are not persisted, and accounts cannot be created")
	}

	server := api.NewServer(cat, users, results, []byte(*jwtSecret), log)

	log.Infof("listening on %s", *addr)
	if err := server.Router().Run(*addr); err != nil {
		log.Criticalf("server exited: %v", err)
		os.Exit(1)
	}
}
