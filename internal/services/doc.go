// Package services implements the YouTube Music collaborators the refresh tasks depend on.
//
// # Client
//
// [Client] talks to two backends:
//   - The ytmusicapi FastAPI proxy for the home feed (GET /api/home). The headers file path is sent via the
//     X-Auth-File header so the proxy can authenticate.
//   - InnerTube (music.youtube.com/youtubei/v1) for generic requests such as "player", posted with a
//     WEB_REMIX client context.
//
// Every request goes through one transport stack: outbound HTTP proxy, optional [oauth2.Transport] and a
// [rate.Limiter]. Raw calls made with [Client.HTTPClient] and [Client.Headers] share it.
//
// # Player Cipher
//
// [PlayerCipher] downloads the player script and keeps its signature timestamp. The URL and timestamp are
// replaced together.
//
// # Authentication
//
// Browser cookies come from a headers JSON file written by "setup youtube". Alternatively, [DeviceAuth]
// runs the OAuth device flow and stores a token that is refreshed and re-saved automatically.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrServiceUnavailable] : Transport failure
//   - [shared.ErrUnexpectedStatus] : Non-2xx response
//   - [shared.ErrExtractionFailed] : Signature timestamp missing from the player script
//   - [shared.ErrNotAuthenticated] : No stored OAuth token
//   - [shared.ErrMissingCredentials] : No headers file
package services
