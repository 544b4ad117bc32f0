/*
Package fcdict implements a compact, immutable, indexed set of byte
strings compressed with bucketed front coding. The n stored keys are
assigned the indices 0..n-1 in lexicographic order and can be mapped
in both directions (key to index, index to key) as well as enumerated
in full or by prefix.

Data Structure Documentation

Dictionary

A dictionary consists of a single compressed byte stream holding the
keys bucket after bucket, plus a pointer table with the byte offset of
every bucket start.

    Stream layout:
    +----------+----------+---------+----------+
    | bucket 1 | bucket 2 |   ...   | bucket m |
    +----------+----------+---------+----------+

    Pointer table (fixed-width little-endian offsets into the stream):
    +----------+----------+---------+----------+---------------------+
    | offset 1 | offset 2 |   ...   | offset m | stream len sentinel |
    +----------+----------+---------+----------+---------------------+

Bucket

A bucket holds up to B consecutive keys. The first key (the header) is
stored verbatim; each subsequent key is stored as the length of its
longest common prefix with the preceding key (varint), followed by the
remaining suffix. Every key is terminated by a single 0x00 byte, which
is why stored keys must not contain it.

    +------------+------+--------------+----------+------+-------+
    | header key | 0x00 | lcp (varint) | suffix 2 | 0x00 |  ...  |
    +------------+------+--------------+----------+------+-------+

Serialized store

The external format is self-describing and little-endian:

    +-----------+-------+-------+----------------+--------+------------------+---------------+---------------+
    | magic (8) | n (8) | B (8) | stream len (8) | stream | num pointers (8) | ptr width (1) | pointer table |
    +-----------+-------+-------+----------------+--------+------------------+---------------+---------------+

The pointer width is the minimum number of bytes able to represent the
stream length, fixed per dictionary at build time.
*/
package fcdict
