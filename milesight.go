// Package milesight provides a client for the REST API of Milesight LoRaWAN
// gateways (UG6x/UG8x series).
//
// Features:
// - Encrypted-password login with the gateway's AES-CBC scheme.
// - Offset/limit pagination for devices, applications, payload codecs and profiles.
// - Single-request lookups for gateway fleet, packet forwarder, network server and integrations.
package milesight
