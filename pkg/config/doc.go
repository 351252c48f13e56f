/*
Package config loads htmlfix settings from a file, the environment and defaults.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	   +---------------+---------------+
	   |               |               |
	+--+---+       +---+---+       +---+---+
	| YAML |       |  HCL  |       | JSON  |
	+------+       +-------+       +-------+
	                   |
	            +------+------+
	            |  .env / env |
	            +-------------+

🎯 Purpose:
- Finds .htmlfix.yaml, .htmlfix.yml, .htmlfix.hcl or .htmlfix.json
- Decodes it with the parser registered for its extension
- Applies HTMLFIX_* overrides from the environment or a .env file
- Fills defaults and rejects invalid values before any file is touched

🔄 Precedence:
 1. command line flags (applied by the caller)
 2. environment (HTMLFIX_TARGET_DIR, HTMLFIX_BASE_URL)
 3. config file
 4. defaults

⚡ Custom rules:
Rules are compiled and probed for idempotence during Validate, so a rule
whose replacement matches its own pattern fails at load time:

	rules:
	  - name: old-domain
	    pattern: 'http://www\.auntruth\.com/'
	    replace: 'https://auntieruth.com/'
	    examples:
	      - 'href="http://www.auntruth.com/index.htm"'

The HCL form uses one block per rule and may reference site_root and env:

	target_dir = env.SITE_DIR

	rule "old-domain" {
	  pattern = "http://www\\.auntruth\\.com/"
	  replace = "https://auntieruth.com${site_root}"
	}

🔍 Example:

	cfg, err := config.LoadOrDefault(ctx, flagPath, ".")
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(ctx, cfg, config.DefaultEnvFile); err != nil {
		return err
	}
*/
package config
