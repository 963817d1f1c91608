/*
Copyright (c) 2013-2018 The btcsuite developers
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Marabud is a node of the Marabu peer-to-peer network. Peers exchange
newline-delimited JSON messages over TCP: they handshake with hello, share
peer addresses, and gossip transactions and blocks.

The default options are sane for most users. This means marabud will work 'out
of the box' for most users. However, there are also a wide variety of flags
that can be used to control it.

Usage:

	marabud [OPTIONS]

For an up-to-date help message:

	marabud --help

The long form of all option flags (except -C) can be specified in a
configuration file that is automatically parsed when marabud starts up. By
default, the configuration file is located at ~/.marabud/marabud.conf. The -C
(--configfile) flag can be used to override this location.
*/
package main
