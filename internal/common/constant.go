package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SaltSize is the number of random bytes in a profile's encryption salt
// before hex encoding.
const SaltSize = 32
