// Command envcheck reports whether the environment is complete enough to
// run the server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yoockh/yoodefence/config"
)

func main() {
	generate := flag.Bool("generate-env", false, "write a sample env file and exit")
	out := flag.String("out", ".env.sample", "sample file path used with -generate-env")
	envFile := flag.String("env-file", ".env", "env file loaded before checking")
	flag.Parse()

	if *generate {
		if err := config.WriteSampleEnv(*out); err != nil {
			fmt.Fprintf(os.Stderr, "write sample: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Sample environment file created at %s\nRename it to .env and fill in your credentials.\n", *out)
		return
	}

	_ = godotenv.Load(*envFile)

	rep := config.CheckEnv(os.LookupEnv)
	rep.Write(os.Stdout)
	if !rep.OK() {
		os.Exit(1)
	}
	fmt.Println("\nAll required environment variables are set.")
}
