/*
Checklist-bot walks retail store staff through the daily merchandising
readiness checklist in a Telegram chat and delivers a summary report to the
reporting user and, optionally, an administrator.

It receives updates through a webhook: the HTTP handler validates and
enqueues each update into a dedicated runtime goroutine and returns
immediately, trusting Telegram to retry when the runtime is not ready yet.

# Configuration

Configuration is sourced from the environment:

	BOT_TOKEN          Telegram bot credential (required).
	BASE_URL           Externally reachable base URL used to register the
	                   webhook, e.g. https://store-checklist-bot.onrender.com.
	                   When empty, webhook registration is skipped.
	TG_SECRET          Secret token echoed back by Telegram with every
	                   webhook call. Optional but strongly recommended.
	TELEGRAM_ADMIN_ID  Chat ID receiving a copy of every report. Optional.
	PORT               Port to listen on. Defaults to 8080.
	LOG_LEVEL          debug, info, warn or error. Defaults to info.
*/
package main
