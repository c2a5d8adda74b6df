/*
Package apdu implements the APDU layer of UICC (SIM) communication used by
the trace analyzer and the live capture mode.

# Fundamentals

The exchange with a UICC is strictly synchronous (ISO/IEC 7816-3):
 1. The terminal sends a Command APDU (Header + optional Body).
 2. The card processes it and returns a Response APDU (optional Body +
    trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW). On a UICC the relevant
classes (ETSI TS 102 221) are:
  - 0x9000: Success (OK).
  - 0x91XX: Success, and a proactive command of XX bytes is pending.
    The terminal is expected to issue FETCH.
  - 0x61XX: Success, XX more response bytes available (GET RESPONSE).
  - 0x6CXX: Wrong length expectation, correct Le is XX.
  - Other 6XXX: various error conditions.

# Proactive session

The SIM Application Toolkit inverts the master/slave relation: the card
requests operations (OPEN CHANNEL, SEND DATA, REFRESH, ...) which the
terminal retrieves with FETCH and answers with TERMINAL RESPONSE. Unsolicited
card-to-terminal events travel in ENVELOPE commands. The analyzer in
pkg/validate reasons about traces of exactly these exchanges.
*/
package apdu
