// Package config provides configuration parsing for lessonvars.
//
// The configuration is stored in lessonvars.json next to the lesson.
// Every field is optional; command line flags override the file.
//
// # Configuration File Structure
//
//	{
//	  "name": "sine-waves",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 4000,
//	    "sendBuffer": 64,
//	    "shutdownTimeout": "5s"
//	  },
//	  "variables": {
//	    "source": "variables.yaml"
//	  },
//	  "store": {
//	    "stormBudget": 10000
//	  },
//	  "dev": {
//	    "enabled": true,
//	    "watch": true,
//	    "debounce": "200ms"
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
