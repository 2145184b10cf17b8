package sniff

// Package sniff implements the resource locator: it drives a Chromium session
// via chromedp, watches CDP network traffic for media responses while the post
// renders, and falls back to scraping the rendered DOM. The output is a set of
// media candidates plus the user agent the session used.
