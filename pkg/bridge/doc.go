// Copyright 2024-2026 Aiku AI

// Package bridge implements the platform-independent core of a
// Minecraft-Discord chat bridge: account identity, one-time linking
// codes, and message relaying between the two chat surfaces.
//
// # Core Types
//
// [IdentityStore] owns the bijective mapping between player UUIDs and
// Discord account ids, persisted as a YAML snapshot. The player to
// Discord direction is authoritative; the reverse index is derived and
// rebuilt on load.
//
// [CodeRegistry] issues and consumes short-lived one-time linking
// codes, backed by either [MemoryCodeStore] or [RedisCodeStore].
//
// [Bridge] is the facade wiring the store, the registry and the
// formatter to a [ChatClient] (the Discord side) and a [GameServer]
// (the game side).
//
// [AdminAPI] exposes the linking operations over HTTP so out-of-process
// game plugins can drive the bridge.
//
// Message rendering lives in the minecraftfmt sub-package; mention
// resolution and outbound sanitization live in the discord sub-package.
package bridge
