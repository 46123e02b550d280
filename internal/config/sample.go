package config

// SampleConfig returns a fully documented configuration file
func SampleConfig() string {
	return `# snapzoo configuration
version: "1.0"

server:
  # Base URL of the analysis service and the multipart upload route
  endpoint: "http://127.0.0.1:8000"
  analyze_path: "/api/analyze/"
  # Optional bearer token sent with every request
  token: ""
  timeout: 60s
  max_retries: 2
  retry_backoff: 1s

chat:
  # Results below this confidence are reported as "no match"
  match_threshold: 0.4
  # Long result text is revealed in chunks of at most this many characters
  chunk_max_length: 150
  pacing_interval: 1s
  # Delay before offering another analysis after a no-match or failure
  action_delay: 1s
  max_image_bytes: 10485760
  # Images whose header declares more pixels than this are rejected before decoding
  max_image_pixels: 40000000
  # Files landing in this directory are treated as dropped onto the chat
  drop_dir: ""
  drop_settle: 300ms
  # Desktop notification when an analysis finishes
  notify: false

output:
  default_format: "text"   # text|json|markdown|csv
  color_mode: "auto"       # auto|always|never
  theme: "default"         # default|high-contrast|minimal
  timestamp_format: "15:04"
  preview_width: 24
  markdown: true

logging:
  file: "~/.cache/snapzoo/snapzoo.log"
  verbose: false
`
}

// MinimalSampleConfig returns a compact configuration with essential settings
func MinimalSampleConfig() string {
	return `version: "1.0"
server:
  endpoint: "http://127.0.0.1:8000"
chat:
  drop_dir: ""
`
}
