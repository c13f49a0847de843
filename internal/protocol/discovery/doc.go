// Package discovery implements recipient-blind message discovery.
//
// Every deposited message carries a public key M = m·G and a challenge
// m·C, where C = k·G is the recipient's challenge key. A round runs as:
//
//  1. Begin: the server draws a fresh secret s and returns s·(m_i·C) for
//     every stored message, in a shuffled order, under a new session id.
//  2. Respond: the recipient returns k⁻¹ applied to every blinded value.
//  3. Redeem: the server removes s and keeps the positions whose result
//     equals that message's public key.
//
// Only the holder of k produces matches, the server never learns which
// recipient asked, and a session can be redeemed once before it expires.
package discovery
