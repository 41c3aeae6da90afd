package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

const ENV_PROD_CONFIG = ".env"
const ENV_DEV_CONFIG = ".dev.env"

func main() {
	configFile := flag.String("config", ".env", "Configuration file to load (e.g., .env, .dev.env, .prod.env)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "TweetWriter - tweet inspiration ranking backend\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fmt.Fprintf(os.Stderr, "  -config string\n")
		fmt.Fprintf(os.Stderr, "        Configuration file to load (default: .env)\n")
		fmt.Fprintf(os.Stderr, "  -help, -h\n")
		fmt.Fprintf(os.Stderr, "        Show this help information\n\n")
		fmt.Fprintf(os.Stderr, "Note: Environment variables will override config file values\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *configFile != "" {
		err := godotenv.Load(*configFile)
		if err != nil {
			log.Printf("Warning: Failed to load config file %s: %v", *configFile, err)
			log.Println("Continuing with environment variables...")
		}
	}

	container, err := BuildContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to build container: %v", err))
	}

	err = container.Invoke(func(app *Application) {
		if err := app.Initialize(); err != nil {
			panic(fmt.Sprintf("Failed to initialize application: %v", err))
		}

		defer app.Shutdown()

		if err := app.Run(); err != nil {
			panic(fmt.Sprintf("Failed to run application: %v", err))
		}
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to invoke application: %v", err))
	}
}
