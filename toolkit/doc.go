// Package toolkit groups ready-made tool sets for agents:
//
//   - finance: Yahoo Finance quotes, company profiles, fundamentals,
//     analyst recommendations and news.
//   - websearch: Google results through Serper and DuckDuckGo's HTML
//     endpoint.
//   - reasoning: think/analyze scratchpad tools that record reasoning steps
//     in session state.
package toolkit
